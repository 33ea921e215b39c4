// Package client is the resilient request executor for the generation
// service and the home of its four endpoint families: text-to-3d,
// rigging, retexture, and animation.
//
// One Client owns one rate gate, one retry policy, and one task poller;
// the families share them and differ only in resource path and payload
// shape. A typical pipeline:
//
//	c, err := client.New(client.Config{APIKey: key})
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	id, err := c.TextTo3D.Create(ctx, client.TextTo3DRequest{
//	    Mode:   "preview",
//	    Prompt: "a weathered bronze astrolabe",
//	})
//	if err != nil {
//	    return err
//	}
//
//	task, err := c.TextTo3D.Wait(ctx, id)
//	if err != nil {
//	    return err
//	}
//	var manifest client.ModelManifest
//	if err := task.DecodeResult(&manifest); err != nil {
//	    return err
//	}
//
// Every call is admitted through the rate gate, retried on 429 and 5xx
// responses and transport faults with jittered exponential backoff, and
// surfaced on failure as a structured error from the errors package.
// Failures keep their most specific classification: a 401 fails
// immediately as UNAUTHORIZED, and exhausted retries return the last
// classified error rather than a generic one.
package client
