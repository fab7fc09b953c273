package domain

import "strings"

const (
	keySeparator    = "_"
	urlKeySuffix    = "url"
	digestKeySuffix = "crc"
	lastCheckKey    = "last_check"
)

// Keys derives the persistent store keys used for one namespace.
//
// A module "m" in namespace "ns" occupies three slots:
//
//	ns_m      code text
//	ns_m_url  source URL
//	ns_m_crc  integrity digest
//
// The scheduler keeps its state in ns_last_check.
type Keys struct {
	Namespace string
}

// NewKeys returns the key layout for the given namespace.
func NewKeys(namespace string) Keys {
	return Keys{Namespace: namespace}
}

// Prefix returns the prefix shared by every key of the namespace.
func (k Keys) Prefix() string {
	return k.Namespace + keySeparator
}

// Code returns the key holding the code text of a module.
func (k Keys) Code(name string) string {
	return k.Prefix() + name
}

// URL returns the key holding the source URL of a module.
func (k Keys) URL(name string) string {
	return k.Code(name) + keySeparator + urlKeySuffix
}

// Digest returns the key holding the integrity digest of a module.
func (k Keys) Digest(name string) string {
	return k.Code(name) + keySeparator + digestKeySuffix
}

// LastCheck returns the key holding the scheduler's last check timestamp.
func (k Keys) LastCheck() string {
	return k.Prefix() + lastCheckKey
}

// Owns reports whether key belongs to the namespace.
func (k Keys) Owns(key string) bool {
	return strings.HasPrefix(key, k.Prefix())
}

// ModuleFromDigestKey extracts the module name from a digest key.
// ok is false if key is not a digest key of this namespace.
func (k Keys) ModuleFromDigestKey(key string) (string, bool) {
	suffix := keySeparator + digestKeySuffix
	if !k.Owns(key) || !strings.HasSuffix(key, suffix) {
		return "", false
	}
	name := strings.TrimSuffix(strings.TrimPrefix(key, k.Prefix()), suffix)
	if name == "" {
		return "", false
	}
	return name, true
}
