// Package queue provides a Redis-backed work queue for provider invocations.
//
// Runtimes that front slow provider APIs accept invocation jobs over Redis
// lists and publish results on job-specific pub/sub channels. The queue also
// carries runtime discovery state: each provider runtime registers its
// metadata, maintains a heartbeat key, and tracks its worker count so a
// dispatcher can route jobs to live runtimes.
//
// # Job flow
//
//	dispatcher                      runtime worker
//	----------                      --------------
//	job := queue.NewJob(...)
//	client.Push(ctx, q, job)  --->  job, _ := client.Pop(ctx, q)
//	                                ... invoke provider ...
//	ch, _ := client.Subscribe(      client.Publish(ctx,
//	    ctx, job.ResultChannel())       job.ResultChannel(), result)
//	res := <-ch               <---
//
// Jobs are pushed with LPUSH and popped with BRPOP, giving FIFO order with
// blocking consumers. Payloads travel as Protobuf Struct values encoded with
// protojson, so any JSON-shaped invocation input fits without a per-model
// schema.
package queue
