// Package harness runs browser scenarios against the Mobilindo marketplace.
//
// Each scenario is a fixed, linear sequence of UI interactions followed by
// assertions on rendered text. A scenario runs in its own browser session,
// stops at the first failing step and always releases the session.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: TC003_login
//	description: "Registered buyer can log in"
//	tags: [auth]
//	steps:
//	  - action: goto
//	    url: /
//	  - action: click
//	    target: { role: button, name: Masuk }
//	  - action: fill
//	    target: { label: Email }
//	    value: "mobilindoandre"
//	assertions:
//	  - type: text_contains
//	    target: { css: main }
//	    values: ["Selamat datang kembali", "John Doe"]
//
// Files are checked against the CUE schema in schema.cue, decoded strictly
// (unknown fields fail) and then validated semantically.
//
// # Step Actions
//
//   - goto: navigate, then wait for domcontentloaded on the page and every
//     frame; those waits never fail the step
//   - click, fill, check, select: settle, locate on the active page, act
//   - wait: fixed delay
//   - wait_for_load: auxiliary load-state wait, failures suppressed
//   - scroll: mouse wheel
//
// # Assertion Types
//
//   - text_contains, text_equals, text_equals_fold, one_of: element text,
//     NFC-normalized and whitespace-collapsed
//   - value_equals, attribute_equals: form value and attribute reads
//   - number_in_range: digits of the element text, inclusive bounds
//   - url_contains, visible, count
//   - each: nested checks applied to every matched item
//   - fail: always fails with its message
//
// # Deterministic Testing
//
// Trace events are stamped by a per-scenario logical clock, so the same
// scenario against the same page state yields an identical trace. Tests run
// scenarios against testutil's in-memory browser and compare snapshots with
// golden files (see RunWithGolden).
package harness
