// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package broadcast fans tally updates out to live result subscribers.

Hub keeps subscribers per poll id in memory. Publish never blocks on a slow
subscriber: each channel subscriber has a SubscriberQueueSize buffer and
updates that do not fit are dropped and counted. A subscriber whose Deliver
returns an error is removed.

	id, updates := hub.Subscribe(pollID)
	defer hub.Unsubscribe(pollID, id)

	for u := range updates {
		// u is a full snapshot of the poll's tally
	}

RedisRelay implements the same Publisher interface across instances. It
delivers to the local hub, then publishes to <prefix><pollId>; Run
pattern-subscribes to <prefix>* and feeds the updates of other instances
into the local hub.

Delivery is at most once, with no replay and no ordering guarantee between
updates.
*/
package broadcast
