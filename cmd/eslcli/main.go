/*
main.go is released under the MIT License <http://www.opensource.org/licenses/mit-license.php
Copyright (C) ITsysCOM. All Rights Reserved.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cgrates/eslcore"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "eslcli",
		Usage: "ad-hoc FreeSwitch Event Socket operator console",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "127.0.0.1", Usage: "FreeSwitch host"},
			&cli.UintFlag{Name: "port", Value: 8021, Usage: "FreeSwitch ESL port"},
			&cli.StringFlag{Name: "password", Value: "ClueCon", Usage: "ESL password"},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second, Usage: "command/response timeout"},
		},
		Commands: []*cli.Command{
			apiCommand,
			bgapiCommand,
			eventsCommand,
			sendCommand,
			channelsCommand,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "eslcli:", err)
		os.Exit(1)
	}
}

func dialFromFlags(c *cli.Context) (*esl.EventSocket, error) {
	cfg := esl.Config{
		Host:            c.String("host"),
		Port:            uint16(c.Uint("port")),
		Password:        c.String("password"),
		ResponseTimeout: c.Duration("timeout"),
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ResponseTimeout)
	defer cancel()
	return esl.Dial(ctx, cfg)
}

var apiCommand = &cli.Command{
	Name:      "api",
	Usage:     "run a blocking API command",
	ArgsUsage: "<command>",
	Action: func(c *cli.Context) error {
		sock, err := dialFromFlags(c)
		if err != nil {
			return err
		}
		defer sock.Close()
		ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
		defer cancel()
		resp, err := sock.SendAPI(ctx, c.Args().First())
		if err != nil {
			return err
		}
		fmt.Println(resp.BodyText)
		return nil
	},
}

var bgapiCommand = &cli.Command{
	Name:      "bgapi",
	Usage:     "run an API command in the background and await its result",
	ArgsUsage: "<command>",
	Action: func(c *cli.Context) error {
		sock, err := dialFromFlags(c)
		if err != nil {
			return err
		}
		defer sock.Close()
		ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
		defer cancel()
		jobUUID, result, err := sock.BgAPI(ctx, c.Args().First())
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Job-UUID:", jobUUID)
		select {
		case res, ok := <-result:
			if !ok {
				return esl.ErrJobNeverArrived
			}
			fmt.Println(res.BodyText)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	},
}

var eventsCommand = &cli.Command{
	Name:      "events",
	Usage:     "subscribe and print events as they arrive",
	ArgsUsage: "[event-name...]",
	Action: func(c *cli.Context) error {
		sock, err := dialFromFlags(c)
		if err != nil {
			return err
		}
		defer sock.Close()
		ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
		if _, err := sock.SubscribeEvents(ctx, c.Args().Slice()...); err != nil {
			cancel()
			return err
		}
		cancel()

		events, unsubscribe := sock.Events()
		defer unsubscribe()
		for ev := range events {
			fmt.Printf("%s uuid=%s state=%s\n", ev.RawEventName(), ev.UUID(), ev.ChannelState())
		}
		return nil
	},
}

var channelsCommand = &cli.Command{
	Name:  "channels",
	Usage: "run 'show channels' and print one line per active call leg",
	Action: func(c *cli.Context) error {
		sock, err := dialFromFlags(c)
		if err != nil {
			return err
		}
		defer sock.Close()
		ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
		defer cancel()
		resp, err := sock.SendAPI(ctx, "show channels")
		if err != nil {
			return err
		}
		for _, row := range esl.MapChanData(resp.BodyText) {
			fmt.Printf("uuid=%s cid_num=%s dest=%s state=%s\n",
				row["uuid"], row["cid_num"], row["dest"], row["callstate"])
		}
		return nil
	},
}

var sendCommand = &cli.Command{
	Name:      "send",
	Usage:     "send a raw command and print its command/reply",
	ArgsUsage: "<command>",
	Action: func(c *cli.Context) error {
		sock, err := dialFromFlags(c)
		if err != nil {
			return err
		}
		defer sock.Close()
		ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
		defer cancel()
		reply, err := sock.SendCommand(ctx, c.Args().First())
		if err != nil {
			return err
		}
		fmt.Println(reply.ReplyText)
		return nil
	},
}
