package config

// Environment overrides. Each setting also accepts the dumb-init name so
// existing images keep working.
var (
	debugVars  = []string{"HALE_DEBUG", "DUMB_INIT_DEBUG"}
	setsidVars = []string{"HALE_SETSID", "DUMB_INIT_SETSID"}
)

// ApplyEnv applies environment overrides on top of file settings.
// DEBUG=1 turns on verbose output and SETSID=0 turns off group mode; any
// other value leaves the setting alone. getenv is usually os.Getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if anyEquals(getenv, debugVars, "1") {
		cfg.Verbose = true
	}
	if anyEquals(getenv, setsidVars, "0") {
		cfg.SingleChild = true
	}
}

func anyEquals(getenv func(string) string, names []string, want string) bool {
	for _, name := range names {
		if getenv(name) == want {
			return true
		}
	}
	return false
}
