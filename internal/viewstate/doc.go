// Package viewstate implements the translation view-state controller.
//
// The controller owns the state behind the dictionary page: the input text,
// the displayed translation, the loading flag, the side content (word of the
// day and proverb) and the open modal. It keeps the route in step with the
// displayed word and reacts to history navigation.
//
// Translation submissions are stamped with an increasing sequence number.
// Only the completion carrying the latest number may change the state, so a
// slow response for an older word can never replace a newer result. Older
// requests run to completion and are discarded unless WithCancelSuperseded
// is set. The route and title of a settled result are applied under a
// separate lock and only while no newer submission has started.
//
// History navigation resubmits the word from the path. The scroll and
// highlight affordance belongs to InitializeFromRoute alone.
package viewstate
