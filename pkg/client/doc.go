// Package client is a hand-written Go SDK for the labtasker coordinator
// HTTP API (spec §6.1), authenticating with HTTP Basic
// queue_name:password credentials rather than a bearer token.
//
// # Basic usage
//
//	c := client.New("http://localhost:9321", "my-queue", "my-password")
//
//	task, err := c.CreateTask(ctx, client.CreateTaskRequest{
//	    TaskName: "train",
//	    Args:     mustValue(map[string]interface{}{"lr": 0.01}),
//	})
//
// # Events
//
//	events, err := c.Events(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for evt := range events {
//	    fmt.Printf("event: %s\n", evt.Type)
//	}
//
// # Configuration
//
//	c := client.New("http://localhost:9321", "my-queue", "my-password",
//	    client.WithTimeout(10*time.Second),
//	)
package client
