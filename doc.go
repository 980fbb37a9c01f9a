// Package relaykit is a client-side reliability layer for a hosted
// publish/subscribe event service.
//
// Outbound, the client accepts locally generated events, redacts their
// payloads, and delivers them to the service over HTTP with idempotent
// event ids, exponential-backoff retries, and terminal-vs-retryable error
// classification. Delivery is fire-and-forget: publish and update never
// fail asynchronously; failures surface through typed notifications and
// logs only.
//
// Inbound, the client authenticates webhook deliveries from the service
// (basic credentials, token header, or HMAC body signature, as directed by
// the server-issued configuration) and routes them to local subscribers via
// a hierarchical dot-segmented topic grammar with "*" and "**" wildcards.
//
//	client, err := relaykit.New(relaykit.Config{
//		BaseURL: "https://events.example.com",
//		Key:     os.Getenv("RELAY_KEY"),
//		Secret:  os.Getenv("RELAY_SECRET"),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.FetchConfig(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	client.OnTopic("com.example.order.created", notify.NewHandler(
//		func(ctx context.Context, p notify.TopicPayload) error {
//			return processOrder(p.Data)
//		},
//	))
//
//	id, err := client.Publish("com.example.order.created", map[string]any{
//		"order_id": "ord-1",
//	}, nil)
//
//	http.Handle("/webhook", client.WebhookHandler())
package relaykit
