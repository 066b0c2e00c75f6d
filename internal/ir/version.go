package ir

// Version is the microstore module version reported by the CLI.
const Version = "0.1.0"
