package events

import (
	"sync"
	"testing"
	"time"
)

func TestTopicPublishInOrder(t *testing.T) {
	topic := NewTopic[int]()

	var got []string
	topic.Subscribe(func(v int) { got = append(got, "a") })
	topic.Subscribe(func(v int) { got = append(got, "b") })

	topic.Publish(1)

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("handlers ran as %v, want [a b]", got)
	}
}

func TestTopicUnsubscribe(t *testing.T) {
	topic := NewTopic[string]()

	calls := 0
	unsub := topic.Subscribe(func(string) { calls++ })
	topic.Publish("x")
	unsub()
	unsub()
	topic.Publish("y")

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if topic.Count() != 0 {
		t.Errorf("Count() = %d, want 0", topic.Count())
	}
}

func TestTopicUnsubscribeFromHandler(t *testing.T) {
	topic := NewTopic[int]()

	calls := 0
	var unsub func()
	unsub = topic.Subscribe(func(int) {
		calls++
		unsub()
	})

	topic.Publish(1)
	topic.Publish(2)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestTopicConcurrentPublish(t *testing.T) {
	topic := NewTopic[int]()

	var mu sync.Mutex
	sum := 0
	topic.Subscribe(func(v int) {
		mu.Lock()
		sum += v
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			topic.Publish(v)
		}(i)
	}
	wg.Wait()

	if sum != 5050 {
		t.Errorf("sum = %d, want 5050", sum)
	}
}

func TestBroadcasterSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster[int]()

	_, cancel1 := b.Subscribe()
	_, cancel2 := b.Subscribe()

	if b.Count() != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.Count())
	}

	cancel1()
	cancel1()
	if b.Count() != 1 {
		t.Fatalf("expected 1 subscriber after unsubscribe, got %d", b.Count())
	}

	cancel2()
	if b.Count() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", b.Count())
	}
}

func TestBroadcasterPublish(t *testing.T) {
	b := NewBroadcaster[string]()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish("hello")

	select {
	case v := <-ch:
		if v != "hello" {
			t.Errorf("got %q, want hello", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
}

func TestBroadcasterDropsForSlowConsumer(t *testing.T) {
	b := NewBroadcaster[int]()
	ch, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < SubscriberBuffer+10; i++ {
		b.Publish(i)
	}

	if len(ch) != SubscriberBuffer {
		t.Errorf("buffered %d values, want %d", len(ch), SubscriberBuffer)
	}
}

func TestBroadcasterCloseClosesChannels(t *testing.T) {
	b := NewBroadcaster[int]()
	ch, cancel := b.Subscribe()

	b.Close()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}
}
