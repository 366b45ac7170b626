package session_test

import (
	"context"
	"fmt"
	"io"

	"github.com/bft-labs/fleetspeak/pkg/frame"
	"github.com/bft-labs/fleetspeak/pkg/session"
)

// ExampleSession runs a session over in-memory pipes standing in for the
// descriptors the Fleetspeak client passes to its children.
func ExampleSession() {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	defer outR.Close()

	s, err := session.New(inR, outW, session.Config{Service: "greeter"})
	if err != nil {
		fmt.Printf("failed to create session: %v\n", err)
		return
	}

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		fmt.Printf("failed to start: %v\n", err)
		return
	}

	// The Fleetspeak side delivers one message.
	go func() {
		_ = frame.WriteFrame(inW, frame.Frame{
			Type:    frame.TypeApplication,
			Service: "greeter",
			Kind:    "hello",
			Payload: []byte("fleet"),
		}, frame.DefaultLimits())
	}()

	msg, err := s.Receive(ctx)
	if err != nil {
		fmt.Printf("receive failed: %v\n", err)
		return
	}
	fmt.Printf("%s %s\n", msg.Kind, msg.Data)

	_ = s.Stop()
	fmt.Println(s.State())

	// Output:
	// hello fleet
	// Closed
}
