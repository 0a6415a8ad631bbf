// Package ranking 实现内容排序引擎：个性化 Feed、热门、相关推荐与搜索相关度。
//
// 所有函数均为纯函数：输入为目录快照与互动状态快照，不持有隐藏状态，不做 I/O。
// 唯一的非确定性来自个性化 Feed 的 Top 窗口洗牌，随机源由调用方注入。
// 不同用户可在不加锁的情况下并发调用。
package ranking
