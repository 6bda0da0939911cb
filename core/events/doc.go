// Package events defines the typed inbound event contract of a live tutoring
// connection.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - tutor_speech.*
//   - user_input.*
//   - turn_state.*
//   - connection.*
//
// Semantics used across the package:
//
//   - Chunk: binary audio payload, already decoded from the wire text form.
//   - Delta: append-only text piece emitted in stream order.
//
// tutor_speech events
//
//   - AudioChunk (tutor_speech.audio_chunk): synthesized speech, 24 kHz mono
//     linear16.
//   - OutputTranscriptDelta (tutor_speech.transcript_delta): incremental text of
//     what the tutor is saying.
//
// user_input events
//
//   - InputTranscriptDelta (user_input.transcript_delta): incremental text of
//     what the remote endpoint heard from the microphone.
//
// turn_state events
//
//   - TurnComplete (turn_state.completed): the current turn ended; partial
//     transcripts can be committed.
//   - Interrupted (turn_state.interrupted): the user spoke over the tutor; all
//     pending playback must be cancelled.
//
// connection events
//
//   - Closed (connection.closed): the remote endpoint closed normally.
//   - Error (connection.error): the connection failed.
//
// Events from one connection are delivered in the order the remote endpoint
// produced them.
package events
