// Package convert generates the expressions that move values between their
// native representation on each side and their wire representation.
//
// Every bridged type has a Rule with four directions:
//
//	systems native --SystemsToWire--> wire --WireToManaged--> managed native
//	systems native <--WireToSystems-- wire <--ManagedToWire-- managed native
//
// Rules are obtained through Generator.Rule, a single bridged.Visitor; rules
// of composite types ask the generator for the rules of their parts, so
// nesting composes without per-combination code.
package convert
