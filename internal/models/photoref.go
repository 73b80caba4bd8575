package models

import (
	"encoding/json"
	"strings"
)

// localPrefix tags photo references that point at the local blob store.
const localPrefix = "local::"

// PhotoRefKind enumerates the states a photo reference can be in.
type PhotoRefKind int

const (
	// PhotoNone means no photo is attached.
	PhotoNone PhotoRefKind = iota
	// PhotoLocal references a payload in the local blob store by id.
	PhotoLocal
	// PhotoRemote references an uploaded photo by its public URL.
	PhotoRemote
	// PhotoInline carries the payload as a data URI. Only used transiently
	// while assembling a report; not written by current code paths, but
	// legacy records may still contain it.
	PhotoInline
)

// PhotoRef is a tagged reference to an answer's photo. The zero value means
// "no photo". It serializes to the legacy string forms ("local::<id>", an
// absolute URL, or a data URI) so records remain wire-compatible.
type PhotoRef struct {
	kind  PhotoRefKind
	value string
}

// LocalPhoto references a not-yet-uploaded payload in the blob store.
func LocalPhoto(blobID string) PhotoRef {
	return PhotoRef{kind: PhotoLocal, value: blobID}
}

// RemotePhoto references an uploaded photo by public URL.
func RemotePhoto(url string) PhotoRef {
	return PhotoRef{kind: PhotoRemote, value: url}
}

// InlinePhoto carries the payload itself as a data URI.
func InlinePhoto(dataURI string) PhotoRef {
	return PhotoRef{kind: PhotoInline, value: dataURI}
}

// ParsePhotoRef decodes the tagged string form.
func ParsePhotoRef(s string) PhotoRef {
	switch {
	case s == "":
		return PhotoRef{}
	case strings.HasPrefix(s, localPrefix):
		return LocalPhoto(strings.TrimPrefix(s, localPrefix))
	case strings.HasPrefix(s, "data:"):
		return InlinePhoto(s)
	default:
		return RemotePhoto(s)
	}
}

func (r PhotoRef) Kind() PhotoRefKind { return r.kind }

func (r PhotoRef) IsZero() bool { return r.kind == PhotoNone }

// BlobID returns the blob-store id and true for local references.
func (r PhotoRef) BlobID() (string, bool) {
	if r.kind != PhotoLocal {
		return "", false
	}
	return r.value, true
}

// URL returns the public URL and true for remote references.
func (r PhotoRef) URL() (string, bool) {
	if r.kind != PhotoRemote {
		return "", false
	}
	return r.value, true
}

// String renders the tagged string form.
func (r PhotoRef) String() string {
	if r.kind == PhotoLocal {
		return localPrefix + r.value
	}
	return r.value
}

func (r PhotoRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *PhotoRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = ParsePhotoRef(s)
	return nil
}
