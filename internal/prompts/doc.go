// Package prompts maps generated output files back to the prompt that produced
// them.
//
// Generators name outputs "NNN-<mode>-<slug>.txt" where NNN is the 1-based
// position of the prompt in prompts.json. The index resolves that prefix to
// the prompt mode recorded in the file.
package prompts
