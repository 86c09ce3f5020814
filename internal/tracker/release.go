package tracker

import (
	"sort"
	"time"

	"github.com/wfunc/ap-itemlog/internal/world"
)

// ReleaseEntry 一名释放者待汇总的物品
// Receivers保持首次出现顺序，汇总消息输出才稳定
type ReleaseEntry struct {
	Sender    string
	OpenedAt  time.Time
	Receivers []string
	Items     map[string][]*world.Item
}

func (e *ReleaseEntry) add(receiver string, item *world.Item) {
	if _, ok := e.Items[receiver]; !ok {
		e.Receivers = append(e.Receivers, receiver)
	}
	e.Items[receiver] = append(e.Items[receiver], item)
}

// ReleaseBuffer 释放事件的时间窗缓冲
// 每个发送方的状态机：无 -> 打开 -> (超过等待窗) -> 冲刷删除
type ReleaseBuffer struct {
	epsilon time.Duration
	window  time.Duration
	open    map[string]*ReleaseEntry
}

// NewReleaseBuffer 创建释放缓冲
func NewReleaseBuffer(epsilon, window time.Duration) *ReleaseBuffer {
	return &ReleaseBuffer{
		epsilon: epsilon,
		window:  window,
		open:    make(map[string]*ReleaseEntry),
	}
}

// Open 为发送方打开缓冲，已打开则不动
func (b *ReleaseBuffer) Open(sender string, at time.Time) {
	if _, ok := b.open[sender]; ok {
		return
	}
	b.open[sender] = &ReleaseEntry{
		Sender:   sender,
		OpenedAt: at,
		Items:    make(map[string][]*world.Item),
	}
}

// Capture 尝试把一次发送并入缓冲
// 只有发送方有打开的缓冲且事件时间落在归并窗内才吸收，返回是否吸收
func (b *ReleaseBuffer) Capture(sender string, at time.Time, receiver string, item *world.Item) bool {
	entry, ok := b.open[sender]
	if !ok {
		return false
	}
	delta := at.Sub(entry.OpenedAt)
	if delta < 0 {
		delta = -delta
	}
	if delta > b.epsilon {
		return false
	}
	entry.add(receiver, item)
	return true
}

// Due 弹出所有已超过等待窗的缓冲
// 弹出即删除，同一发送方不会被冲刷两次
func (b *ReleaseBuffer) Due(now time.Time) []*ReleaseEntry {
	var due []*ReleaseEntry
	for sender, entry := range b.open {
		if now.Sub(entry.OpenedAt) > b.window {
			due = append(due, entry)
			delete(b.open, sender)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].OpenedAt.Equal(due[j].OpenedAt) {
			return due[i].Sender < due[j].Sender
		}
		return due[i].OpenedAt.Before(due[j].OpenedAt)
	})
	return due
}

// DrainAll 弹出全部缓冲（停机前用）
func (b *ReleaseBuffer) DrainAll() []*ReleaseEntry {
	var all []*ReleaseEntry
	for sender, entry := range b.open {
		all = append(all, entry)
		delete(b.open, sender)
	}
	return all
}

// Pending 当前打开的缓冲数
func (b *ReleaseBuffer) Pending() int {
	return len(b.open)
}
