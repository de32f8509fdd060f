// Package prompts holds the canned prompts offered to MCP clients.
//
// Prompts live in templates/ as markdown files with YAML front matter:
//
//	---
//	description: shown in prompts/list
//	user: the opening user turn
//	---
//	system text
//
// The body becomes the system message. Clients that have no system role
// receive it as a user message; that mapping belongs to the transport.
package prompts
