// Package eon compiles EON topology source into an immutable scene graph.
//
// An EON document declares anchor nodes and orbit rings:
//
//	node "APPS.CORE" {
//	  pos: [0, 18, 0];
//	  size: 2.8;
//	}
//
//	orbit "SOFTWARE_LAYER" {
//	  parent: "APPS.CORE";
//	  radius: 8.5;
//	  nodes: ["calculadora", "terminal"];
//	}
//
// Compilation runs in two passes over comment-stripped source. The first pass
// collects every node block into a table local to the call; the second resolves
// each orbit's parent and members against that table. Any malformed literal
// aborts the whole run with a SyntaxError, so callers either get a complete
// Graph or nothing.
//
// Compile is a pure function. It performs no I/O, keeps no state between calls
// and is safe for concurrent use on independent inputs.
package eon
