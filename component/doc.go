// Package component defines the contracts shared by the meter service's
// runtime components: discovery metadata, ports, health and flow metrics,
// and the Initialize/Start/Stop lifecycle.
//
// StandardLifecycleTests is a reusable test suite for LifecycleComponent
// implementations.
package component
