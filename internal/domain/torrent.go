package domain

import (
	"context"
	"encoding/json"
)

// AddStatus is the outcome of a torrent submission that reached the daemon.
type AddStatus string

const (
	// AddSuccess means the daemon accepted the torrent.
	AddSuccess AddStatus = "success"
	// AddRejected means the daemon answered but declined the torrent
	// (duplicate, malformed metadata, ...). Not a transport error.
	AddRejected AddStatus = "rejected"
)

// AddTorrentResult carries the daemon's verdict plus its raw response
// arguments so callers can pass them through for debugging.
type AddTorrentResult struct {
	Status  AddStatus
	Result  string
	Payload json.RawMessage
}

// TorrentSubmitter performs the two-step RPC handshake against the download
// daemon and submits the given torrent metadata bytes.
type TorrentSubmitter interface {
	SubmitTorrent(ctx context.Context, metainfo []byte) (*AddTorrentResult, error)
}
