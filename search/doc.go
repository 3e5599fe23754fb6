// Package search implements the debounced search controller behind the
// interactive search screen.
//
// Each SetQuery call restarts a single debounce timer. When the query stays
// unchanged for the debounce period the controller runs one catalog search
// through an asyncstate.AsyncState, so a newer query always supersedes an
// older in-flight request. Empty or whitespace-only queries clear the
// results without searching.
//
//	ctrl := search.New(client, search.WithRecorder(aggregator))
//	defer ctrl.Close()
//	ctrl.Subscribe(func(s search.Snapshot) {
//		fmt.Println(s.Phase, len(s.Movies))
//	})
//	ctrl.SetQuery("dune")
package search
