// Package logging provides file-based structured logging with rotation
// for tagindex. Logs are JSON lines written under the PromptLoom data
// root (Logs/tagindex.log); --debug additionally mirrors them to stderr.
package logging
