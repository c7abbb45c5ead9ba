// Package stream decodes run-execution byte streams into typed events.
//
// Framing and parsing are separate layers: FrameDecoder is
// transport-agnostic line framing ("data: <json>" frames, "[DONE]"
// terminator), ParseEvent maps a frame onto the execution event union,
// accepting both the legacy {event,data} and the newer {type,data}
// surfaces.
package stream
