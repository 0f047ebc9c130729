// Package interview runs a live simulated clinical interview.
//
// An Orchestrator alternates streamed turns between a nurse and a patient
// voice session, records every utterance in a transcript.Log and pushes
// events to a single client Connection. A background Monitor watches the
// transcript and, whenever it grows, refreshes the diagnosis and question
// pools through a capability suite. The main loop reads the monitor's
// latest ranking through a RankedCache; the monitor reaches the client
// through a Relay that never blocks longer than its delivery timeout.
package interview
