package wormhole

import (
	"context"
	"encoding/hex"
	"encoding/json"

	"securebeam.eu/securebeam/internal/crypto"
	"securebeam.eu/securebeam/internal/transit"
	"securebeam.eu/securebeam/internal/werr"
)

// pakePhaseBody is the JSON body of the mailbox "pake" phase message,
// §4.6.1: {"pake": hex(spake2_public)}.
type pakePhaseBody struct {
	Pake string `json:"pake"`
}

// exchangePake runs both sides of the symmetric PAKE over the mailbox's
// "pake" phase and returns the shared key and the display verifier
// derived from it.
func exchangePake(ctx context.Context, rc *rendezvousClient, password string) (sharedKey [crypto.KeySize]byte, verifier [crypto.KeySize]byte, err error) {
	pake := crypto.NewPake(password)
	ourMsg, err := pake.Start()
	if err != nil {
		return sharedKey, verifier, werr.Wrap(werr.Crypto, "pake start failed", err)
	}

	body, err := json.Marshal(pakePhaseBody{Pake: hex.EncodeToString(ourMsg)})
	if err != nil {
		return sharedKey, verifier, werr.Wrap(werr.Protocol, "could not marshal pake phase", err)
	}
	if err := rc.addPhase(ctx, "pake", body); err != nil {
		return sharedKey, verifier, err
	}

	peerBody, err := rc.waitPhase(ctx, "pake")
	if err != nil {
		return sharedKey, verifier, err
	}
	var peer pakePhaseBody
	if err := json.Unmarshal(peerBody, &peer); err != nil {
		return sharedKey, verifier, werr.Wrap(werr.Protocol, "malformed pake phase message", err)
	}
	peerMsg, err := hex.DecodeString(peer.Pake)
	if err != nil {
		return sharedKey, verifier, werr.Wrap(werr.Protocol, "malformed pake public value", err)
	}

	key, err := pake.Finish(peerMsg)
	if err != nil {
		return sharedKey, verifier, werr.Wrap(werr.Crypto, "pake finish failed", err)
	}
	copy(sharedKey[:], key)

	v, err := crypto.DeriveVerifier(key)
	if err != nil {
		return sharedKey, verifier, err
	}
	return sharedKey, v, nil
}

// exchangeTransitHints sends ours over the mailbox's "transit" phase,
// waits for the peer's, and returns the merged, priority-sorted set used
// for dialing.
func exchangeTransitHints(ctx context.Context, rc *rendezvousClient, ours transit.Hints) (transit.Hints, error) {
	body, err := json.Marshal(ours)
	if err != nil {
		return transit.Hints{}, werr.Wrap(werr.Protocol, "could not marshal transit hints", err)
	}
	if err := rc.addPhase(ctx, "transit", body); err != nil {
		return transit.Hints{}, err
	}

	peerBody, err := rc.waitPhase(ctx, "transit")
	if err != nil {
		return transit.Hints{}, err
	}
	var peer transit.Hints
	if err := json.Unmarshal(peerBody, &peer); err != nil {
		return transit.Hints{}, werr.Wrap(werr.Protocol, "malformed transit hints message", err)
	}

	merged := ours
	merged.Direct = append(merged.Direct, peer.Direct...)
	merged.Relay = append(merged.Relay, peer.Relay...)
	merged.SortByPriority()
	return merged, nil
}

func relayHints(url string) []transit.RelayHint {
	if url == "" {
		return nil
	}
	return []transit.RelayHint{{URL: url}}
}
