// Package repository 提供仓库层单元测试（内存 SQLite）
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ashwinyue/next-chat/internal/model"
	"github.com/ashwinyue/next-chat/internal/testutil"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	return NewRepositories(testutil.NewTestDB(t))
}

func strPtr(s string) *string { return &s }

// ========== Conversation ==========

func TestConversation_GetOrCreate(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	created, err := repos.Conversation.GetOrCreate(ctx, "")
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error: %v", err)
	}
	if created.SessionID == "" {
		t.Fatal("GetOrCreate() returned empty session id")
	}
	if created.Title != model.DefaultConversationTitle {
		t.Errorf("Title = %q, want %q", created.Title, model.DefaultConversationTitle)
	}

	found, err := repos.Conversation.GetOrCreate(ctx, created.SessionID)
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("GetOrCreate(existing) ID = %d, want %d", found.ID, created.ID)
	}

	minted, err := repos.Conversation.GetOrCreate(ctx, "unknown-token")
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error: %v", err)
	}
	if minted.SessionID == "unknown-token" || minted.SessionID == created.SessionID {
		t.Errorf("GetOrCreate(unknown) SessionID = %q, want a fresh token", minted.SessionID)
	}
}

func TestConversation_FreshTokensAreUnique(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		conv, err := repos.Conversation.GetOrCreate(ctx, "")
		if err != nil {
			t.Fatalf("GetOrCreate() unexpected error: %v", err)
		}
		if seen[conv.SessionID] {
			t.Fatalf("duplicate session id %q", conv.SessionID)
		}
		seen[conv.SessionID] = true
	}
}

func TestConversation_GetBySessionID_NotFound(t *testing.T) {
	repos := newTestRepos(t)

	_, err := repos.Conversation.GetBySessionID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBySessionID() error = %v, want ErrNotFound", err)
	}
}

func TestConversation_ListSummaries(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	first, _ := repos.Conversation.Create(ctx, "")
	second, _ := repos.Conversation.Create(ctx, "")

	for i := 0; i < 3; i++ {
		if err := repos.Message.Create(ctx, &model.Message{
			ConversationID: first.ID,
			Role:           model.RoleUser,
			Content:        fmt.Sprintf("message %d", i),
		}); err != nil {
			t.Fatalf("Create message: %v", err)
		}
	}
	if err := repos.Conversation.Touch(ctx, first.ID, "Renamed"); err != nil {
		t.Fatalf("Touch() unexpected error: %v", err)
	}

	summaries, err := repos.Conversation.ListSummaries(ctx, 50)
	if err != nil {
		t.Fatalf("ListSummaries() unexpected error: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("ListSummaries() returned %d, want 2", len(summaries))
	}

	counts := map[string]int64{}
	titles := map[string]string{}
	for _, s := range summaries {
		counts[s.Conversation.SessionID] = s.MessageCount
		titles[s.Conversation.SessionID] = s.Conversation.Title
	}
	if counts[first.SessionID] != 3 {
		t.Errorf("MessageCount(first) = %d, want 3", counts[first.SessionID])
	}
	if counts[second.SessionID] != 0 {
		t.Errorf("MessageCount(second) = %d, want 0", counts[second.SessionID])
	}
	if titles[first.SessionID] != "Renamed" {
		t.Errorf("Title(first) = %q, want 'Renamed'", titles[first.SessionID])
	}

	limited, err := repos.Conversation.ListSummaries(ctx, 1)
	if err != nil {
		t.Fatalf("ListSummaries() unexpected error: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("ListSummaries(limit=1) returned %d, want 1", len(limited))
	}
}

func TestConversation_DeleteCascades(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	conv, _ := repos.Conversation.Create(ctx, "")
	_ = repos.Message.Create(ctx, &model.Message{ConversationID: conv.ID, Role: model.RoleUser, Content: "hi"})
	file := &model.File{ConversationID: conv.ID, FileName: "a.txt", Kind: model.FileKindText, FileSize: 3}
	if err := repos.File.CreateWithChunks(ctx, file, []string{"abc"}); err != nil {
		t.Fatalf("CreateWithChunks() unexpected error: %v", err)
	}

	deleted, err := repos.Conversation.Delete(ctx, conv.SessionID)
	if err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("Delete() = false, want true")
	}

	msgs, _ := repos.Message.ListByConversation(ctx, conv.ID, 0)
	if len(msgs) != 0 {
		t.Errorf("messages after delete = %d, want 0", len(msgs))
	}
	latest, _ := repos.File.GetLatest(ctx, conv.ID)
	if latest != nil {
		t.Errorf("latest file after delete = %v, want nil", latest)
	}
	count, _ := repos.Context.Count(ctx, conv.ID)
	if count != 0 {
		t.Errorf("chunks after delete = %d, want 0", count)
	}

	deleted, err = repos.Conversation.Delete(ctx, conv.SessionID)
	if err != nil || deleted {
		t.Errorf("Delete(again) = %v, %v; want false, nil", deleted, err)
	}
}

// ========== Message ==========

func TestMessage_Ordering(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	conv, _ := repos.Conversation.Create(ctx, "")

	for i := 0; i < 5; i++ {
		msg := &model.Message{ConversationID: conv.ID, Role: model.RoleUser, Content: fmt.Sprintf("m%d", i)}
		if i%2 == 1 {
			mode := model.ModeGeneralChat
			msg.Role = model.RoleAssistant
			msg.ModelUsed = strPtr("llama-3.1-8b-instant")
			msg.Mode = &mode
		}
		if err := repos.Message.Create(ctx, msg); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
	}

	all, err := repos.Message.ListByConversation(ctx, conv.ID, 0)
	if err != nil {
		t.Fatalf("ListByConversation() unexpected error: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("ListByConversation() returned %d, want 5", len(all))
	}
	for i, m := range all {
		if want := fmt.Sprintf("m%d", i); m.Content != want {
			t.Errorf("all[%d].Content = %q, want %q", i, m.Content, want)
		}
	}
	if all[1].ModelUsed == nil || *all[1].ModelUsed != "llama-3.1-8b-instant" {
		t.Errorf("all[1].ModelUsed = %v", all[1].ModelUsed)
	}
	if all[0].Mode != nil {
		t.Errorf("all[0].Mode = %v, want nil", *all[0].Mode)
	}

	limited, _ := repos.Message.ListByConversation(ctx, conv.ID, 2)
	if len(limited) != 2 || limited[0].Content != "m0" {
		t.Errorf("ListByConversation(limit=2) = %d items", len(limited))
	}

	recent, err := repos.Message.ListRecent(ctx, conv.ID, 2)
	if err != nil {
		t.Fatalf("ListRecent() unexpected error: %v", err)
	}
	if len(recent) != 2 || recent[0].Content != "m3" || recent[1].Content != "m4" {
		t.Errorf("ListRecent() = %v, want [m3 m4]", recent)
	}
}

// ========== File ==========

func TestFile_GetLatest(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	conv, _ := repos.Conversation.Create(ctx, "")

	latest, err := repos.File.GetLatest(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetLatest() unexpected error: %v", err)
	}
	if latest != nil {
		t.Fatalf("GetLatest() = %v, want nil", latest)
	}

	_ = repos.File.Create(ctx, &model.File{ConversationID: conv.ID, FileName: "first.png", Kind: model.FileKindImage,
		IsImage: true, ImageBase64: strPtr("AAAA"), MediaType: strPtr("image/png")})
	_ = repos.File.Create(ctx, &model.File{ConversationID: conv.ID, FileName: "second.txt", Kind: model.FileKindText})

	latest, err = repos.File.GetLatest(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetLatest() unexpected error: %v", err)
	}
	if latest == nil || latest.FileName != "second.txt" {
		t.Errorf("GetLatest() = %v, want second.txt", latest)
	}

	files, _ := repos.File.ListByConversation(ctx, conv.ID)
	if len(files) != 2 {
		t.Fatalf("ListByConversation() returned %d, want 2", len(files))
	}
	if got := files[0].DataURL(); got != "data:image/png;base64,AAAA" {
		t.Errorf("DataURL() = %q", got)
	}
}

// ========== Context ==========

func TestContext_ReplaceNeverAppends(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	conv, _ := repos.Conversation.Create(ctx, "")

	first := &model.File{ConversationID: conv.ID, FileName: "a.txt", Kind: model.FileKindText}
	if err := repos.File.CreateWithChunks(ctx, first, []string{"a0", "a1", "a2", "a3", "a4"}); err != nil {
		t.Fatalf("CreateWithChunks() unexpected error: %v", err)
	}
	second := &model.File{ConversationID: conv.ID, FileName: "b.txt", Kind: model.FileKindText}
	if err := repos.File.CreateWithChunks(ctx, second, []string{"b0", "b1"}); err != nil {
		t.Fatalf("CreateWithChunks() unexpected error: %v", err)
	}

	count, err := repos.Context.Count(ctx, conv.ID)
	if err != nil {
		t.Fatalf("Count() unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	chunks, _ := repos.Context.List(ctx, conv.ID, 0)
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunks[%d].ChunkIndex = %d", i, c.ChunkIndex)
		}
		if !strings.HasPrefix(c.ChunkText, "b") {
			t.Errorf("chunks[%d].ChunkText = %q, want second generation", i, c.ChunkText)
		}
	}
}

func TestContext_ListLimitAndClear(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	conv, _ := repos.Conversation.Create(ctx, "")
	other, _ := repos.Conversation.Create(ctx, "")

	if err := repos.Context.Replace(ctx, conv.ID, []string{"c0", "c1", "c2", "c3"}); err != nil {
		t.Fatalf("Replace() unexpected error: %v", err)
	}
	if err := repos.Context.Replace(ctx, other.ID, []string{"x0"}); err != nil {
		t.Fatalf("Replace() unexpected error: %v", err)
	}

	chunks, err := repos.Context.List(ctx, conv.ID, 3)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("List(limit=3) returned %d, want 3", len(chunks))
	}
	if chunks[0].ChunkText != "c0" || chunks[2].ChunkText != "c2" {
		t.Errorf("List() = [%q .. %q], want [c0 .. c2]", chunks[0].ChunkText, chunks[2].ChunkText)
	}

	if err := repos.Context.Clear(ctx, conv.ID); err != nil {
		t.Fatalf("Clear() unexpected error: %v", err)
	}
	count, _ := repos.Context.Count(ctx, conv.ID)
	if count != 0 {
		t.Errorf("Count() after Clear = %d, want 0", count)
	}
	otherCount, _ := repos.Context.Count(ctx, other.ID)
	if otherCount != 1 {
		t.Errorf("Count(other) after Clear = %d, want 1", otherCount)
	}
}

func TestContext_ConcurrentReplaceLastWriteWins(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	conv, _ := repos.Conversation.Create(ctx, "")

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			chunks := make([]string, w+1)
			for i := range chunks {
				chunks[i] = fmt.Sprintf("g%d-%d", w, i)
			}
			file := &model.File{ConversationID: conv.ID, FileName: fmt.Sprintf("g%d.txt", w), Kind: model.FileKindText}
			errs[w] = repos.File.CreateWithChunks(ctx, file, chunks)
		}(w)
	}
	wg.Wait()

	for w, err := range errs {
		if err != nil {
			t.Errorf("writer %d: CreateWithChunks() unexpected error: %v", w, err)
		}
	}

	chunks, err := repos.Context.List(ctx, conv.ID, 0)
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("List() returned no chunks")
	}

	// 只能看到某一个写入者的完整一代
	gen := strings.SplitN(chunks[0].ChunkText, "-", 2)[0]
	var w int
	if _, err := fmt.Sscanf(gen, "g%d", &w); err != nil {
		t.Fatalf("unexpected chunk text %q", chunks[0].ChunkText)
	}
	if len(chunks) != w+1 {
		t.Errorf("len(chunks) = %d, want %d for generation %s", len(chunks), w+1, gen)
	}
	for i, c := range chunks {
		if want := fmt.Sprintf("%s-%d", gen, i); c.ChunkText != want || c.ChunkIndex != i {
			t.Errorf("chunks[%d] = (%d, %q), want (%d, %q)", i, c.ChunkIndex, c.ChunkText, i, want)
		}
	}

	// 最后一个提交的文件就是当前分块所属的文件
	latest, err := repos.File.GetLatest(ctx, conv.ID)
	if err != nil || latest == nil {
		t.Fatalf("GetLatest() = %v, %v", latest, err)
	}
	if latest.FileName != gen+".txt" {
		t.Errorf("GetLatest().FileName = %q, want %q", latest.FileName, gen+".txt")
	}
}

func TestContext_ReplaceUnknownConversation(t *testing.T) {
	repos := newTestRepos(t)

	err := repos.Context.Replace(context.Background(), 9999, []string{"x"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Replace() error = %v, want ErrNotFound", err)
	}
}
