package storage

import "context"

// Composite always writes locally and optionally mirrors to a remote
// store. The remote locator wins when both are available.
type Composite struct {
	local  *Local
	remote Store
}

// NewComposite wires the local store with an optional remote mirror.
// remote may be nil.
func NewComposite(local *Local, remote Store) *Composite {
	return &Composite{local: local, remote: remote}
}

// Put satisfies Store. It returns the remote locator when mirroring is
// enabled, the local path otherwise.
func (c *Composite) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	locator, _, err := c.Save(ctx, name, data, contentType)
	return locator, err
}

// Save writes the artifact and returns both the public locator and the
// local path. A remote failure fails the whole save.
func (c *Composite) Save(ctx context.Context, name string, data []byte, contentType string) (locator, localPath string, err error) {
	localPath, err = c.local.Put(ctx, name, data, contentType)
	if err != nil {
		return "", "", err
	}
	locator = localPath
	if c.remote != nil {
		locator, err = c.remote.Put(ctx, name, data, contentType)
		if err != nil {
			return "", "", err
		}
	}
	return locator, localPath, nil
}
