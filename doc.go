// Package flux implements a reactive component framework: component state
// lives in declared properties, properties are mutated only through actions,
// and derived work is driven by reactions that observe property-change and
// custom events. A cooperative Loop batches actions into rounds and runs
// reactions against a frozen snapshot of state, in the spirit of
// Flux/Redux/Vuex but expressed through a component/property model rather
// than a single global store.
//
// The unidirectional flow is: calling code invokes an Action, the Loop
// records it; when the action queue drains, each action mutates properties
// through the component's mutation channel, which emits change events;
// Reactions connected to those events (explicitly via connection strings, or
// implicitly via dependency tracking) run in a later, frozen-state phase and
// may themselves call further actions, which schedule the next round.
package flux
