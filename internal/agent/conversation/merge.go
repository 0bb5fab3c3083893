package conversation

import (
	"sort"

	"pair_chat_server/internal/dto/respond"
)

// Merge 合并多个频道的消息，按 id 去重后按 (createdAt, id) 排序，与服务端的排序一致
// 同一 id 以先出现的为准，输入相同则输出相同
func Merge(channels ...[]respond.MessageItem) []respond.MessageItem {
	n := 0
	for _, ch := range channels {
		n += len(ch)
	}
	seen := make(map[string]struct{}, n)
	out := make([]respond.MessageItem, 0, n)
	for _, ch := range channels {
		for _, m := range ch {
			if _, ok := seen[m.Id]; ok {
				continue
			}
			seen[m.Id] = struct{}{}
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return idLess(out[i].Id, out[j].Id)
	})
	return out
}

// idLess 雪花 id 是十进制字符串，先比长度再比字典序即数值顺序
func idLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// Diff 返回 merged 中不在 held 里的消息
func Diff(held map[string]struct{}, merged []respond.MessageItem) []respond.MessageItem {
	var fresh []respond.MessageItem
	for _, m := range merged {
		if _, ok := held[m.Id]; !ok {
			fresh = append(fresh, m)
		}
	}
	return fresh
}
