package priceoracle

import (
	"context"

	"github.com/mimic-fi/v3-subgraph/internal/entity"
	"github.com/mimic-fi/v3-subgraph/internal/modules/core"
	"github.com/mimic-fi/v3-subgraph/internal/network"
)

func SignerID(oracle, signer string) string {
	return oracle + "/signer/" + signer
}

func FeedID(oracle, base, quote string) string {
	return oracle + "/feed/" + base + "/" + quote
}

func handleSignerSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	signer, err := e.AddressArg("signer")
	if err != nil {
		return err
	}
	allowed, err := e.BoolArg("allowed")
	if err != nil {
		return err
	}

	id := SignerID(e.Emitter(), core.AddressID(signer))
	if !allowed {
		return m.Repos.PriceOracleSigners.Remove(ctx, id)
	}
	return m.Repos.PriceOracleSigners.Save(ctx, &entity.PriceOracleSigner{
		ID:          id,
		PriceOracle: e.Emitter(),
		Signer:      core.AddressID(signer),
	})
}

// handleFeedSet stores the feed for a pair; a zero feed address unsets it.
func handleFeedSet(ctx context.Context, m *Module, e *core.ParsedEvent) error {
	base, err := e.AddressArg("base")
	if err != nil {
		return err
	}
	quote, err := e.AddressArg("quote")
	if err != nil {
		return err
	}
	feed, err := e.AddressArg("feed")
	if err != nil {
		return err
	}

	id := FeedID(e.Emitter(), core.AddressID(base), core.AddressID(quote))
	if network.IsZero(feed) {
		return m.Repos.PriceOracleFeeds.Remove(ctx, id)
	}

	baseToken, err := m.Tokens.Resolve(ctx, base)
	if err != nil {
		return err
	}
	quoteToken, err := m.Tokens.Resolve(ctx, quote)
	if err != nil {
		return err
	}
	return m.Repos.PriceOracleFeeds.Save(ctx, &entity.PriceOracleFeed{
		ID:          id,
		PriceOracle: e.Emitter(),
		Base:        baseToken.ID,
		Quote:       quoteToken.ID,
		Feed:        core.AddressID(feed),
	})
}
