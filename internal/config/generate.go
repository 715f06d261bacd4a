package config

// DefaultConfigTOML is a complete, commented sample hale.toml.
const DefaultConfigTOML = `# hale configuration file
# Every setting is optional; command-line flags take precedence.

# single_child = false          # signal only the child, not its process group
# survive_bereaving = false     # keep running after the child exits
# verbose = false               # debug output on stderr
# shell = "/bin/sh"             # interpreter for actions
# log_format = "text"           # text, json
# metrics_listen = ""           # e.g. "127.0.0.1:9102"; empty disables

# Signal rewrites, "<from>:<to>". Numbers or names; 0 as <to> drops the
# signal, 0 as <from> sets the default for every signal.
# rewrite = ["TERM:QUIT", "WINCH:0"]

# Commands run through the shell instead of forwarding, "<signal>:<command>".
# action = ["USR1:kill -HUP 1"]
`
