// Copyright 2026 Prefetch Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package prefetch 提供面向拉取式数据源的并发预读迭代器，
将消费速率与生产速率解耦。

# 概述

当数据源的元素生产昂贵或缓慢（磁盘扫描、网络分页、模型推理）时，
消费者每次拉取都要同步等待一次生产。本包在后台并发地向前预读，
把元素暂存到一个有界缓冲中，消费侧按原始顺序逐个取出：

  - 严格保序：元素按生产顺序交付，缓冲不重排、不丢弃。
  - 有界预读：任意时刻未消费的预读元素数不超过容量上限。
  - nil 元素透传：数据源产出的 nil 元素与"尚无元素"严格区分。
  - 故障保真：数据源的错误被捕获一次，在对应位置原样重放给消费者。

# 两种调度策略

  - DedicatedIterator：每个实例独占一个后台 goroutine，生命周期内
    持续预读。实现简单、延迟最低，但实例数多时 goroutine 成本高。
  - PooledIterator：自我续投的任务链，在共享 pool.WorkerPool 上
    每次激活只拉取一个元素，元素之间让出 worker。大量实例可共享
    少量 worker，单实例任意时刻至多一个在途任务。

# 核心接口

  - Source[T]：单方法拉取接口 Next() (T, bool, error)。
  - Iterator[T]：消费门面，HasNext / Next / Prestart / Close。
  - Config / DedicatedConfig / PooledConfig：容量、等待节奏与日志配置。

# 生命周期

首次 HasNext、Next 或显式 Prestart 触发惰性启动；数据源耗尽、
故障或 Close 进入终态。故障与取消后的继续使用返回 ErrPoisoned，
帮助尽早暴露误用。

# 与其他包协同

  - pool：PooledIterator 依赖的共享 worker 池。
  - metrics：将迭代器与池的运行统计导出为 Prometheus 指标。
  - testutil：计数源、注错源等测试夹具。
*/
package prefetch
