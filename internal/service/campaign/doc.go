// Package campaign implements campaign management and the send state
// machine.
//
// A campaign moves draft -> sending (immediate) or draft -> scheduled
// (future send); the broadcast worker later promotes either to sent
// once the provider's dispatch time has passed. Test sends run on any
// campaign without touching its status.
//
// Content rendering lives in render.go: structured blocks and markdown
// are turned into provider-ready HTML, with every text fragment pushed
// through an HTML sanitizer.
package campaign
