// Package core provides the shared vocabulary of the interview simulator:
//
//   - Speaker tags for transcript entries (NURSE, PATIENT, PATIENT_INFO)
//   - Clinical records exchanged with the client (Diagnosis, Question, Highlight)
//   - Role-based Content used to build model requests
//
// The package holds plain data types only. Stores, capabilities and the
// orchestration engine live in their own packages and depend on core, never
// the other way around.
package core
