//go:build !base64

package builtins

func base64Signatures() []*Signature { return nil }
