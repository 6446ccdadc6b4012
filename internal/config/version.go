package config

// Version is the backlogd binary version.
// Set at build time via: -ldflags "-X github.com/persistorai/backlog/internal/config.Version=<tag>"
var Version = "dev"
