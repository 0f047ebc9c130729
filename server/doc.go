// Package server exposes interview sessions over a websocket and serves
// patient profile files over HTTP.
//
// Routes:
//
//	GET  /ws/simulation          websocket; first message must be {"type":"start",...}
//	POST /api/get-patient-file   {"pid":"P0001","file_name":"patient_info.md"}
//	GET  /healthz
package server
