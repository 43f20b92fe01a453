// Package state holds the tracking state carried between retrification passes:
// which access logs were already mined and when each application was last
// accessed.
package state

import "sort"

// State is not safe for concurrent use; a pass owns it exclusively.
type State struct {
	// ProcessedLogs holds base names of access logs already merged.
	ProcessedLogs map[string]struct{}
	// LastAccess maps application name to its latest access, in epoch millis.
	LastAccess map[string]int64
}

func New() *State {
	return &State{
		ProcessedLogs: map[string]struct{}{},
		LastAccess:    map[string]int64{},
	}
}

// Merge records an access at millis for key, keeping the maximum.
// It reports whether the stored value changed.
func (s *State) Merge(key string, millis int64) bool {
	prev, ok := s.LastAccess[key]
	if ok && millis <= prev {
		return false
	}
	s.LastAccess[key] = millis
	return true
}

// Latest returns the last access of key, if any.
func (s *State) Latest(key string) (int64, bool) {
	v, ok := s.LastAccess[key]
	return v, ok
}

// Forget drops the last access of key.
func (s *State) Forget(key string) {
	delete(s.LastAccess, key)
}

func (s *State) Processed(name string) bool {
	_, ok := s.ProcessedLogs[name]
	return ok
}

func (s *State) MarkProcessed(name string) {
	s.ProcessedLogs[name] = struct{}{}
}

// RetainLogs drops processed log names that are not present anymore and
// returns how many were dropped.
func (s *State) RetainLogs(present map[string]struct{}) int {
	dropped := 0
	for name := range s.ProcessedLogs {
		if _, ok := present[name]; !ok {
			delete(s.ProcessedLogs, name)
			dropped++
		}
	}
	return dropped
}

// RetainApps drops last-access entries of applications not in names and
// returns the dropped keys, sorted.
func (s *State) RetainApps(names map[string]struct{}) []string {
	var dropped []string
	for key := range s.LastAccess {
		if _, ok := names[key]; !ok {
			delete(s.LastAccess, key)
			dropped = append(dropped, key)
		}
	}
	sort.Strings(dropped)
	return dropped
}

// SortedLogs returns the processed log names in order.
func (s *State) SortedLogs() []string {
	logs := make([]string, 0, len(s.ProcessedLogs))
	for name := range s.ProcessedLogs {
		logs = append(logs, name)
	}
	sort.Strings(logs)
	return logs
}
