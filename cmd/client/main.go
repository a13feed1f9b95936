// Headless session driver: creates a room, deals the roles, then runs the
// polling reconciler with a console presenter until the game resolves.
// The human seat is left idle here; phase deadlines keep the session
// moving regardless.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/DoyleJ11/werewolf-arena/internal/apiclient"
	"github.com/DoyleJ11/werewolf-arena/internal/config"
	"github.com/DoyleJ11/werewolf-arena/internal/reconciler"
	"github.com/DoyleJ11/werewolf-arena/pkg/types"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		panic(err)
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(cfg.BaseURL)
	roles, err := client.AssignRoles(ctx, cfg.RoomID, cfg.SeatCount, cfg.HumanSeat)
	if err != nil {
		log.Fatal("assign roles", zap.Error(err))
	}
	fmt.Printf("room %s ready, you are seat %d (%s)\n", cfg.RoomID, cfg.HumanSeat, roles[cfg.HumanSeat])

	pres := &consolePresenter{done: make(chan struct{})}
	rec := reconciler.New(client, pres, log, reconciler.Options{
		RoomID:      cfg.RoomID,
		HumanSeat:   cfg.HumanSeat,
		RolesBySeat: roles,
		Interval:    cfg.PollInterval,
	})

	go func() {
		select {
		case <-pres.done:
		case <-ctx.Done():
		}
		rec.Stop()
	}()
	rec.Run(ctx)
}

type consolePresenter struct {
	done chan struct{}
}

func (p *consolePresenter) ShowAnnouncement(text string) {
	fmt.Printf("*** %s\n", text)
}

func (p *consolePresenter) ShowPhase(snap types.Snapshot) {
	fmt.Printf("--- %s (round %d, %d alive)\n", snap.Phase, snap.Round, len(snap.AlivePlayers))
}

func (p *consolePresenter) ShowSpeech(seat int, text string) {
	fmt.Printf("seat %d: %s\n", seat, text)
}

func (p *consolePresenter) ShowDeath(dead types.DeadPlayer) {
	fmt.Printf("seat %d (%s) died by %s\n", dead.Seat, dead.Role, dead.KilledBy)
}

func (p *consolePresenter) ShowGameOver(result string) {
	fmt.Printf("=== game over: %s\n", result)
	close(p.done)
}

func (p *consolePresenter) ShowHumanTurn(myTurn bool, actingRole string) {
	if myTurn {
		fmt.Printf("it is your turn to act (%s)\n", actingRole)
	}
}
