package keys

import "strings"

// Kinds of managed objects. Anything stored outside these namespaces is not
// touched by retention sweeps.
const (
    KindOriginals = "originals"
    KindResults   = "results"
)

// Object builds the owner-namespaced key for a stored object:
// <owner>/<kind>/<name>.
func Object(ownerID, kind, name string) string {
    return ownerID + "/" + kind + "/" + name
}

// Managed reports whether key belongs to an owner namespace this service
// writes to. Retention sweeps skip everything else, so a shared bucket can
// hold unrelated objects safely.
func Managed(key string) bool {
    parts := strings.SplitN(key, "/", 3)
    if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
        return false
    }
    return parts[1] == KindOriginals || parts[1] == KindResults
}
