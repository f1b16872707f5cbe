// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry sets up OpenTelemetry tracing for chatmon.
//
// Each chat turn gets a "chat.turn" span with one "chat.stream" child per
// active panel. Spans are written as JSON lines to a local file; nothing is
// sent over the network.
//
// # Usage
//
//	p, err := telemetry.NewProvider(telemetry.Config{
//	    Enabled:  true,
//	    Exporter: "file",
//	    FilePath: filepath.Join(dir, "traces.jsonl"),
//	})
//	defer p.Shutdown(context.Background())
//	orch := chat.New(client, chat.WithTracer(p.Tracer()))
//
// When disabled the tracer is a no-op with no overhead.
package telemetry
