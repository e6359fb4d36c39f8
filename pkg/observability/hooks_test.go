package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Tree hooks
	tr := NoopTreeHooks{}
	tr.OnGatherStart("I1")
	tr.OnGatherComplete("I1", 12, time.Millisecond, nil)
	tr.OnCollapseToggled("F1", true)

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnLoadStart(ctx, "family.ged")
	p.OnLoadComplete(ctx, "family.ged", 10, 3, time.Second, nil)
	p.OnLayoutStart(ctx, "I1")
	p.OnLayoutComplete(ctx, "I1", time.Second, nil)
	p.OnRenderStart(ctx, "svg")
	p.OnRenderComplete(ctx, "svg", time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "layout")
	c.OnCacheMiss(ctx, "layout")
	c.OnCacheSet(ctx, "artifact", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/layout")
	h.OnResponse(ctx, "GET", "/layout", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Tree().(NoopTreeHooks); !ok {
		t.Error("Tree() should return NoopTreeHooks by default")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customTree := &testTreeHooks{}
	SetTreeHooks(customTree)
	if Tree() != customTree {
		t.Error("SetTreeHooks should set custom hooks")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Tree().(NoopTreeHooks); !ok {
		t.Error("Reset() should restore NoopTreeHooks")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testTreeHooks{}
	SetTreeHooks(custom)
	SetTreeHooks(nil)

	if Tree() != custom {
		t.Error("SetTreeHooks(nil) should be ignored")
	}

	Reset()
}

type testTreeHooks struct{ NoopTreeHooks }
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
