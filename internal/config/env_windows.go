//go:build windows

package config

// windowsEnv maps the Unix names used in shared config files to their
// Windows equivalents.
var windowsEnv = map[string]string{
	"HOSTNAME": "COMPUTERNAME",
	"HOME":     "USERPROFILE",
	"USER":     "USERNAME",
}

func mapEnvKey(key string) string {
	if k, ok := windowsEnv[key]; ok {
		return k
	}
	return key
}
