package dynaprompt

// Version is the module version reported by the CLI.
// Overridden at build time with -ldflags "-X .../dynaprompt.Version=...".
var Version = "0.1.0-dev"
