package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/luxoras/storefront/internal/api"
	"github.com/luxoras/storefront/internal/marketplace"
	"github.com/luxoras/storefront/internal/session"
)

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "limit", Usage: "page size", Value: marketplace.DefaultLimit},
		&cli.IntFlag{Name: "page", Usage: "page number", Value: marketplace.DefaultPage},
	}
}

func listingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "listings",
		Usage: "browse and manage listings",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "search listings",
				Flags: append(pageFlags(),
					&cli.StringFlag{Name: "category", Usage: "category filter"},
					&cli.StringFlag{Name: "start-price", Usage: "minimum price"},
					&cli.StringFlag{Name: "end-price", Usage: "maximum price"},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "search text"},
					&cli.StringFlag{Name: "creator", Usage: "creator user id"},
				),
				Action: withSession(func(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
					products, err := marketplace.NewListings(sess.Client(), sess).Search(ctx, marketplace.ListingQuery{
						Limit:       cmd.Int("limit"),
						Page:        cmd.Int("page"),
						Category:    cmd.String("category"),
						StartPrice:  cmd.String("start-price"),
						EndPrice:    cmd.String("end-price"),
						SearchQuery: cmd.String("query"),
						Creator:     cmd.String("creator"),
					})
					if err != nil {
						return err
					}
					return printJSON(cmd, products)
				}),
			},
			{
				Name:      "get",
				Usage:     "show a listing",
				ArgsUsage: "<listing-id>",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
					product, err := marketplace.NewListings(sess.Client(), sess).Get(ctx, cmd.Args().First())
					if err != nil {
						return err
					}
					return printJSON(cmd, product)
				}),
			},
			{
				Name:  "create",
				Usage: "publish a listing",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "listing name", Required: true},
					&cli.StringFlag{Name: "category", Usage: "listing category", Required: true},
					&cli.StringFlag{Name: "description", Usage: "listing description"},
					&cli.FloatFlag{Name: "price", Usage: "asking price", Required: true},
					&cli.StringSliceFlag{Name: "image", Usage: "image file, repeat in display order", Required: true},
				},
				Action: withSession(createListingAction),
			},
			{
				Name:      "delete",
				Usage:     "delete one of your listings",
				ArgsUsage: "<listing-id>",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
					if err := marketplace.NewListings(sess.Client(), sess).Delete(ctx, cmd.Args().First()); err != nil {
						return err
					}
					fmt.Fprintln(output(cmd), "Listing deleted.")
					return nil
				}),
			},
		},
	}
}

func createListingAction(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
	product := api.Product{
		Name:        cmd.String("name"),
		Category:    cmd.String("category"),
		Description: cmd.String("description"),
		Price:       cmd.Float("price"),
	}
	for i, path := range cmd.StringSlice("image") {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading image: %w", err)
		}
		product.Images = append(product.Images, marketplace.ImageFromBytes(data, i))
	}

	id, err := marketplace.NewListings(sess.Client(), sess).Create(ctx, product)
	if err != nil {
		return err
	}
	return printJSON(cmd, api.CreateListingResponse{ProductID: id})
}

func bidsCommand() *cli.Command {
	return &cli.Command{
		Name:  "bids",
		Usage: "place and review bids",
		Commands: []*cli.Command{
			{
				Name:      "place",
				Usage:     "bid on a listing",
				ArgsUsage: "<listing-id>",
				Flags: []cli.Flag{
					&cli.FloatFlag{Name: "amount", Usage: "bid amount", Required: true},
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "message to the seller"},
				},
				Action: withSession(func(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
					id, err := marketplace.NewBids(sess.Client(), sess).Place(ctx, api.Bid{
						Amount:    cmd.Float("amount"),
						Message:   cmd.String("message"),
						ProductID: cmd.Args().First(),
					})
					if err != nil {
						return err
					}
					return printJSON(cmd, api.CreateBidResponse{BidID: id})
				}),
			},
			{
				Name:      "list",
				Usage:     "list bids on a listing",
				ArgsUsage: "<listing-id>",
				Flags:     pageFlags(),
				Action: withSession(func(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
					bids, err := marketplace.NewBids(sess.Client(), sess).ForProduct(ctx, cmd.Args().First(), cmd.Int("limit"), cmd.Int("page"))
					if err != nil {
						return err
					}
					return printJSON(cmd, bids)
				}),
			},
			{
				Name:      "highest",
				Usage:     "show the highest bid on a listing",
				ArgsUsage: "<listing-id>",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
					bid, err := marketplace.NewBids(sess.Client(), sess).Highest(ctx, cmd.Args().First())
					if err != nil {
						return err
					}
					return printJSON(cmd, bid)
				}),
			},
			{
				Name:      "accept",
				Usage:     "sell a listing to a bid",
				ArgsUsage: "<bid-id> <listing-id>",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
					if err := marketplace.NewBids(sess.Client(), sess).Accept(ctx, cmd.Args().Get(0), cmd.Args().Get(1)); err != nil {
						return err
					}
					fmt.Fprintln(output(cmd), "Bid accepted.")
					return nil
				}),
			},
			{
				Name:  "mine",
				Usage: "list your bids",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "bid status filter", Value: string(api.BidStatusActive)},
				},
				Action: withSession(func(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
					bids, err := marketplace.NewBids(sess.Client(), sess).Mine(ctx, api.BidStatus(cmd.String("status")))
					if err != nil {
						return err
					}
					return printJSON(cmd, bids)
				}),
			},
			{
				Name:  "incoming",
				Usage: "list bids on your listings",
				Action: withSession(func(ctx context.Context, cmd *cli.Command, sess *session.Manager) error {
					bids, err := marketplace.NewBids(sess.Client(), sess).Incoming(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd, bids)
				}),
			},
		},
	}
}
