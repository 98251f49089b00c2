// Package delay implements the lateness classification applied to every task
// assignment on each classifier run.
//
// The classification is a pure function of an assignment's progress, start
// date, end date and effort estimate together with the evaluation instant.
// Nothing else is allowed to set an assignment's status.
package delay
