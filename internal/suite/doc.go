// Package suite runs scenario files against the driven CLI.
//
// A scenario is a YAML document naming an ordered list of steps and an
// optional list of cleanup steps. Each step does exactly one thing:
//
//   - command: run the CLI once and check its output for markers
//   - wait_until: poll a command until a marker shows up
//   - workflow: run a named high-level workflow (see WorkflowNames)
//   - scaffold: generate an endpoint skeleton
//
// Example:
//
//	name: start-and-verify
//	tags: [smoke]
//	steps:
//	  - name: start
//	    workflow:
//	      name: start_stack
//	  - name: backend up
//	    wait_until:
//	      command: status
//	      expected: Running
//	  - name: verify neo4j
//	    command: shell backend "restapi verify --service neo4j"
//	    expect: ["Service neo4j is reachable"]
//	cleanup:
//	  - name: remove
//	    command: remove --all
//
// Scenarios run one at a time, in file order. A step whose expectations
// do not hold is FAILED; a step the harness could not carry out is ERROR.
// Cleanup steps always run unless the operator interrupted the run, which
// stops everything and marks the remaining scenarios SKIPPED.
package suite
