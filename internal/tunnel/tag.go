package tunnel

import "strings"

// TagPrefix namespaces every tunnel tag so tag matching never collides with
// unrelated SSH invocations on the same host.
const TagPrefix = "tunnels-"

// Tag derives the canonical identity tag for a tunnel name: lower-cased,
// whitespace collapsed to single hyphens, prefixed with TagPrefix. The tag is
// embedded in the spawned process's command line (via `-o Tag=`) and is the
// sole marker used to correlate a live process back to its tunnel.
//
// Two distinct names that normalize to the same tag are indistinguishable at
// runtime; `doctor` reports such collisions but nothing prevents them.
func Tag(name string) string {
	return TagPrefix + strings.ToLower(strings.Join(strings.Fields(name), "-"))
}
