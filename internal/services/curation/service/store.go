package service

import (
	"context"

	"plaza/internal/platform/pds"
	"plaza/internal/services/curation/domain"
	identdomain "plaza/internal/services/ident/domain"

	"github.com/bluesky-social/indigo/xrpc"
)

// recordStore reads and writes the single curated list record
type recordStore interface {
	// Get returns the current record and its CID
	Get(ctx context.Context) (domain.ListRecord, string, error)

	// Put writes rec to the session owner's repo
	// swapCID guards against concurrent writers; empty means the record
	// does not exist yet and the write is a plain create
	Put(ctx context.Context, sess pds.UserSession, rec domain.ListRecord, swapCID string) error
}

// repoStore talks to the administrator's PDS over XRPC
type repoStore struct {
	ident identdomain.ServicePort
	pdsf  *pds.Factory
	admin string
}

func (st *repoStore) Get(ctx context.Context) (domain.ListRecord, string, error) {
	host, err := st.ident.PDSFor(ctx, st.admin)
	if err != nil {
		return domain.ListRecord{}, "", err
	}

	var out struct {
		URI   string            `json:"uri"`
		CID   string            `json:"cid"`
		Value domain.ListRecord `json:"value"`
	}
	params := map[string]any{
		"repo":       st.admin,
		"collection": domain.ListNSID,
		"rkey":       domain.ListRKey,
	}
	client := st.pdsf.Public(host)
	if err := client.Do(ctx, xrpc.Query, "", "com.atproto.repo.getRecord", params, nil, &out); err != nil {
		return domain.ListRecord{}, "", pds.MapError(err, "com.atproto.repo.getRecord")
	}
	return out.Value, out.CID, nil
}

func (st *repoStore) Put(ctx context.Context, sess pds.UserSession, rec domain.ListRecord, swapCID string) error {
	body := map[string]any{
		"repo":       sess.DID,
		"collection": domain.ListNSID,
		"rkey":       domain.ListRKey,
		"record":     rec,
	}
	if swapCID != "" {
		body["swapRecord"] = swapCID
	}
	client := st.pdsf.Authed(sess)
	if err := client.Do(ctx, xrpc.Procedure, "application/json", "com.atproto.repo.putRecord", nil, body, nil); err != nil {
		return pds.MapError(err, "com.atproto.repo.putRecord")
	}
	return nil
}
