// Copyright 2026 Prefetch Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package pool 提供 PooledIterator 依赖的共享 worker 池。

# 概述

池持有固定数量的 worker goroutine 与一个有界任务队列。
PooledIterator 的生产以任务链的方式运行：每个任务只拉取一个元素，
结束前把等价的下一个任务重新投递回池，元素之间不占用 worker。
因此大量迭代器实例可以共享很少的 worker。

# 主要能力

  - Submit：非阻塞投递，池已关闭返回 ErrClosed，队列满返回 ErrFull。
  - Close：取消池上下文、等待 worker 退出，并以已取消的上下文执行
    残留任务，使任务属主能够观察到关闭而不是永久等待。
  - PanicHandler：任务 panic 的兜底回调。
  - Stats：submitted / completed / rejected / panicked 计数。
*/
package pool
