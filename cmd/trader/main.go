// trader is a one-shot command line for the exchange client: place and
// cancel orders, inspect balances and approvals, list markets, or watch a
// book feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/betbot/godex/lob/client"
	"github.com/betbot/godex/lob/feed"
	"github.com/betbot/godex/lob/ticks"
	"github.com/betbot/godex/lob/types"
	"github.com/betbot/godex/pkg/config"
	"github.com/betbot/godex/pkg/journal"
	"github.com/betbot/godex/pkg/logger"
	"github.com/betbot/godex/pkg/secretstore"
	"github.com/betbot/godex/pkg/wallet"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: trader [-config FILE] COMMAND [flags]

commands:
  markets    list open markets from the indexer
  balances   show base/quote balances for a market
  approvals  show the allowance for a token/spender pair
  approve    raise an allowance explicitly
  buy        market buy (base volume, optional price cap)
  sell       market sell (base volume, optional price cap)
  limit      place a resting limit order
  cancel     retract a resting offer
  watch      stream book updates for a market
`)
	os.Exit(2)
}

func main() {
	configPath := flag.String("config", getenv("GODEX_CONFIG", "config.yaml"), "config file path")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	// A missing .env is fine; env vars may come from the shell.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "markets":
		err = cmdMarkets(ctx, cfg, args)
	case "balances":
		err = cmdBalances(ctx, cfg, args)
	case "approvals":
		err = cmdApprovals(ctx, cfg, args)
	case "approve":
		err = cmdApprove(ctx, cfg, args)
	case "buy":
		err = cmdMarketOrder(ctx, cfg, types.DirectionBuy, args)
	case "sell":
		err = cmdMarketOrder(ctx, cfg, types.DirectionSell, args)
	case "limit":
		err = cmdLimit(ctx, cfg, args)
	case "cancel":
		err = cmdCancel(ctx, cfg, args)
	case "watch":
		err = cmdWatch(ctx, cfg, args)
	default:
		usage()
	}
	if err != nil {
		fatal(err)
	}
}

func cmdMarkets(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("markets", flag.ExitOnError)
	base := fs.String("base", "", "filter by base symbol")
	quote := fs.String("quote", "", "filter by quote symbol")
	fs.Parse(args)

	mc := client.NewMarketsClient(cfg.IndexerURL)
	markets, err := mc.ListOpenMarkets(ctx, client.MarketFilter{BaseSymbol: *base, QuoteSymbol: *quote})
	if err != nil {
		return err
	}
	for _, m := range markets {
		fmt.Printf("%s/%s  spacing=%d  base=%s  quote=%s\n",
			m.Base.Symbol, m.Quote.Symbol, m.TickSpacing, m.Base.Address.Hex(), m.Quote.Address.Hex())
	}
	return nil
}

func cmdBalances(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("balances", flag.ExitOnError)
	base := fs.String("base", "", "base symbol")
	quote := fs.String("quote", "", "quote symbol")
	fs.Parse(args)

	m, err := resolveMarket(ctx, cfg, *base, *quote)
	if err != nil {
		return err
	}
	eng, cleanup, err := dialEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	balances, err := eng.GetBalances(ctx, []types.Market{m})
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", m.Base.Symbol, ticks.FromUnits(balances[m.Base.Address], m.Base.Decimals))
	fmt.Printf("%s: %s\n", m.Quote.Symbol, ticks.FromUnits(balances[m.Quote.Address], m.Quote.Decimals))
	return nil
}

func cmdApprovals(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("approvals", flag.ExitOnError)
	token := fs.String("token", "", "token address")
	spender := fs.String("spender", "", "spender address (default: exchange)")
	fs.Parse(args)
	if *token == "" {
		return fmt.Errorf("-token is required")
	}

	eng, cleanup, err := dialEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	sp := eng.Contracts().Exchange
	if *spender != "" {
		sp = common.HexToAddress(*spender)
	}
	records, err := eng.GetApprovals(ctx, []types.AuthorizationRecord{
		{Token: common.HexToAddress(*token), Spender: sp},
	})
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Printf("token=%s spender=%s allowance=%s\n", r.Token.Hex(), r.Spender.Hex(), r.Allowance)
	}
	return nil
}

func cmdApprove(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("approve", flag.ExitOnError)
	token := fs.String("token", "", "token address")
	spender := fs.String("spender", "", "spender address (default: exchange)")
	amount := fs.String("amount", "max", "amount in smallest units, or 'max'")
	fs.Parse(args)
	if *token == "" {
		return fmt.Errorf("-token is required")
	}

	eng, cleanup, err := dialEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	sp := eng.Contracts().Exchange
	if *spender != "" {
		sp = common.HexToAddress(*spender)
	}
	var amt *big.Int
	if *amount != "max" {
		var ok bool
		if amt, ok = new(big.Int).SetString(*amount, 10); !ok {
			return fmt.Errorf("bad -amount %q", *amount)
		}
	}
	receipt, err := eng.GiveApprovalTo(ctx, common.HexToAddress(*token), sp, amt)
	if err != nil {
		return err
	}
	fmt.Printf("approved, tx=%s\n", receipt.TxHash.Hex())
	return nil
}

func cmdMarketOrder(ctx context.Context, cfg *config.Config, dir types.Direction, args []string) error {
	fs := flag.NewFlagSet(string(dir), flag.ExitOnError)
	base := fs.String("base", "", "base symbol")
	quote := fs.String("quote", "", "quote symbol")
	volume := fs.String("volume", "", "base volume, human units")
	maxPrice := fs.String("max-price", "", "price cap, quote per base (empty = unbounded)")
	skipGate := fs.Bool("skip-approval-check", false, "skip the authorization gate")
	fs.Parse(args)

	m, err := resolveMarket(ctx, cfg, *base, *quote)
	if err != nil {
		return err
	}
	intent, err := baseIntent(m, dir, *volume)
	if err != nil {
		return err
	}
	if *maxPrice != "" {
		p, err := decimal.NewFromString(*maxPrice)
		if err != nil {
			return fmt.Errorf("bad -max-price %q: %w", *maxPrice, err)
		}
		intent.MaxPrice = &p
	}

	eng, cleanup, err := dialEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	outcome, err := eng.MarketOrder(ctx, intent, types.OrderOptions{SkipApprovalCheck: *skipGate})
	if err != nil {
		return err
	}
	printOutcome(m, dir, outcome)
	return nil
}

func cmdLimit(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("limit", flag.ExitOnError)
	side := fs.String("side", "", "buy or sell")
	base := fs.String("base", "", "base symbol")
	quote := fs.String("quote", "", "quote symbol")
	volume := fs.String("volume", "", "base volume, human units")
	price := fs.String("price", "", "limit price, quote per base")
	postOnly := fs.Bool("post-only", false, "reject if the order would match immediately")
	fok := fs.Bool("fok", false, "revert unless fully matched")
	expiry := fs.Uint64("expiry", 0, "unix expiry for the resting offer (0 = none)")
	skipGate := fs.Bool("skip-approval-check", false, "skip the authorization gate")
	fs.Parse(args)

	dir, err := parseSide(*side)
	if err != nil {
		return err
	}
	m, err := resolveMarket(ctx, cfg, *base, *quote)
	if err != nil {
		return err
	}
	intent, err := baseIntent(m, dir, *volume)
	if err != nil {
		return err
	}
	if intent.LimitPrice, err = decimal.NewFromString(*price); err != nil {
		return fmt.Errorf("bad -price %q: %w", *price, err)
	}

	eng, cleanup, err := dialEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	outcome, err := eng.LimitOrder(ctx, intent, types.OrderOptions{
		SkipApprovalCheck: *skipGate,
		PostOnly:          *postOnly,
		FillOrKill:        *fok,
		Expiry:            *expiry,
	})
	if err != nil {
		return err
	}
	printOutcome(m, dir, outcome)
	if outcome.Result.Offer != nil {
		o := outcome.Result.Offer
		fmt.Printf("resting offer id=%s tick=%d gives=%s\n", o.ID, o.Tick, o.Gives)
	}
	return nil
}

func cmdCancel(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	side := fs.String("side", "", "side the order was placed on: buy or sell")
	base := fs.String("base", "", "base symbol")
	quote := fs.String("quote", "", "quote symbol")
	offer := fs.String("offer", "", "offer id")
	deprovision := fs.Bool("deprovision", false, "also withdraw the offer's gas provision")
	fs.Parse(args)

	dir, err := parseSide(*side)
	if err != nil {
		return err
	}
	m, err := resolveMarket(ctx, cfg, *base, *quote)
	if err != nil {
		return err
	}
	offerID, ok := new(big.Int).SetString(*offer, 10)
	if !ok {
		return fmt.Errorf("bad -offer %q", *offer)
	}

	eng, cleanup, err := dialEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	outcome, err := eng.CancelLimitOrder(ctx, m, dir, offerID, *deprovision)
	if err != nil {
		return err
	}
	if outcome.Result.Removed {
		fmt.Printf("offer %s removed, tx=%s\n", offerID, outcome.Receipt.TxHash.Hex())
	} else {
		fmt.Printf("offer %s was already gone (filled or cancelled), tx=%s\n", offerID, outcome.Receipt.TxHash.Hex())
	}
	return nil
}

func cmdWatch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	base := fs.String("base", "", "base symbol")
	quote := fs.String("quote", "", "quote symbol")
	feedURL := fs.String("feed-url", "", "websocket feed url (default: derived from indexer url)")
	fs.Parse(args)
	if *base == "" || *quote == "" {
		return fmt.Errorf("-base and -quote are required")
	}

	url := *feedURL
	if url == "" {
		url = strings.Replace(cfg.IndexerURL, "http", "ws", 1) + "/ws"
	}

	mirror := feed.NewMirror(*base, *quote)
	mirror.OnChange(func(u feed.Update) {
		line := fmt.Sprintf("%s %s/%s %s tick=%d volume=%s",
			time.Now().Format("15:04:05.000"), u.Base, u.Quote, u.Side, u.Tick, u.Volume)
		if tick, vol, ok := mirror.BestAsk(); ok {
			line += fmt.Sprintf("  best_ask=%d(%s)", tick, vol)
		}
		if tick, vol, ok := mirror.BestBid(); ok {
			line += fmt.Sprintf("  best_bid=%d(%s)", tick, vol)
		}
		fmt.Println(line)
	})

	fc := feed.New(url, mirror.Apply)
	if err := fc.Connect(ctx); err != nil {
		return err
	}
	defer fc.Close()
	if err := fc.Subscribe(feed.Subscription{Base: *base, Quote: *quote}); err != nil {
		return err
	}

	logrus.WithField("market", *base+"/"+*quote).Info("watching book, ctrl-c to stop")
	<-ctx.Done()
	return nil
}

// baseIntent builds the shared intent fields: volume always denotes the base
// asset, so a buy wants it and a sell gives it.
func baseIntent(m types.Market, dir types.Direction, volume string) (types.TradeIntent, error) {
	v, err := decimal.NewFromString(volume)
	if err != nil || !v.IsPositive() {
		return types.TradeIntent{}, fmt.Errorf("bad -volume %q", volume)
	}
	return types.TradeIntent{
		Market:     m,
		Direction:  dir,
		FillVolume: ticks.ToUnits(v, m.Base.Decimals),
		FillWants:  dir == types.DirectionBuy,
	}, nil
}

func parseSide(side string) (types.Direction, error) {
	switch strings.ToLower(side) {
	case "buy":
		return types.DirectionBuy, nil
	case "sell":
		return types.DirectionSell, nil
	default:
		return "", fmt.Errorf("-side must be buy or sell, got %q", side)
	}
}

func resolveMarket(ctx context.Context, cfg *config.Config, base, quote string) (types.Market, error) {
	if base == "" || quote == "" {
		return types.Market{}, fmt.Errorf("-base and -quote are required")
	}
	mc := client.NewMarketsClient(cfg.IndexerURL)
	markets, err := mc.ListOpenMarkets(ctx, client.MarketFilter{BaseSymbol: base, QuoteSymbol: quote})
	if err != nil {
		return types.Market{}, err
	}
	if len(markets) == 0 {
		return types.Market{}, fmt.Errorf("no open market %s/%s", base, quote)
	}
	return markets[0], nil
}

// dialEngine builds the engine from config: wallet, both RPC endpoints,
// optional journal. The cleanup closes the journal.
func dialEngine(ctx context.Context, cfg *config.Config) (*client.Engine, func(), error) {
	w, err := loadWallet(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := client.Options{SubmitTimeout: time.Duration(cfg.SubmitTimeout)}
	cleanup := func() {}
	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath)
		if err != nil {
			return nil, nil, err
		}
		opts.Journal = j
		cleanup = func() { j.Close() }
	}

	eng, err := client.Dial(ctx, cfg.RPCURL, cfg.RealtimeRPCURL,
		types.Chain(cfg.ChainID), w, contractsOverride(cfg), opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return eng, cleanup, nil
}

// contractsOverride returns explicit addresses from config, or nil to use
// the chain's pinned deployment.
func contractsOverride(cfg *config.Config) *client.ContractConfig {
	c := cfg.Contracts
	if c.Exchange == "" && c.OrderRouter == "" && c.Reader == "" && c.Multicall == "" {
		return nil
	}
	return &client.ContractConfig{
		Exchange:    common.HexToAddress(c.Exchange),
		OrderRouter: common.HexToAddress(c.OrderRouter),
		Reader:      common.HexToAddress(c.Reader),
		Multicall:   common.HexToAddress(c.Multicall),
	}
}

func loadWallet(cfg *config.Config) (*wallet.Key, error) {
	wc := cfg.Wallet
	switch {
	case wc.PrivateKey != "":
		return wallet.FromHex(wc.PrivateKey)
	case wc.Mnemonic != "":
		return wallet.FromMnemonic(wc.Mnemonic, wc.DerivationPath)
	case wc.SecretStorePath != "":
		var key []byte
		if v := os.Getenv("GODEX_SECRET_KEY"); v != "" {
			key = common.FromHex(v)
		}
		store, err := secretstore.Open(secretstore.OpenOptions{
			Path:          wc.SecretStorePath,
			EncryptionKey: key,
			ReadOnly:      true,
		})
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return wallet.FromSecretStore(store)
	default:
		return nil, fmt.Errorf("no key source configured: set wallet.private_key, wallet.mnemonic or wallet.secret_store_path")
	}
}

func printOutcome(m types.Market, dir types.Direction, outcome *client.OrderOutcome) {
	r := outcome.Result
	gotAsset, gaveAsset := m.Base, m.Quote
	if dir == types.DirectionSell {
		gotAsset, gaveAsset = m.Quote, m.Base
	}
	fmt.Printf("tx=%s\n", outcome.Receipt.TxHash.Hex())
	fmt.Printf("got  %s %s\n", ticks.FromUnits(r.Got, gotAsset.Decimals), gotAsset.Symbol)
	fmt.Printf("gave %s %s\n", ticks.FromUnits(r.Gave, gaveAsset.Decimals), gaveAsset.Symbol)
	if r.Fee.Sign() > 0 {
		fmt.Printf("fee  %s %s\n", ticks.FromUnits(r.Fee, gotAsset.Decimals), gotAsset.Symbol)
	}
	if r.Bounty.Sign() > 0 {
		fmt.Printf("bounty %s wei\n", r.Bounty)
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
