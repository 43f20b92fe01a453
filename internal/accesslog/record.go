// Package accesslog parses servlet-container access log lines in the common
// log format and attributes them to deployed applications.
package accesslog

import "time"

// Record is one parsed access log line, for example:
//
//	10.50.132.206 - admin [07/Feb/2020:18:01:00 +0300] "POST /manager/html/undeploy?path=/Ubs HTTP/1.1" 200 309828
type Record struct {
	RemoteHost        string
	RemoteLogicalUser string // empty when logged as "-"
	RemoteUser        string // empty when logged as "-"
	Time              time.Time
	Method            string
	URL               string
	Protocol          string
	Status            string
	BytesSent         string
}

// UnixMilli returns the record timestamp in epoch milliseconds.
func (r Record) UnixMilli() int64 { return r.Time.UnixMilli() }
