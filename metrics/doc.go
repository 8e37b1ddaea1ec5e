// Copyright 2026 Prefetch Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package metrics 将迭代器与 worker 池的运行统计导出为 Prometheus 指标。

# 概述

Collector 实现 prometheus.Collector：注册若干统计源
（prefetch 迭代器、pool.WorkerPool），在每次抓取时读取其
Stats() 快照并转换为带 iterator_id 标签的指标。

# 指标

  - prefetch_produced_total / prefetch_consumed_total /
    prefetch_faults_total：按实例计数。
  - prefetch_buffered / prefetch_capacity：实例当前缓冲水位与容量。
  - prefetch_pool_*：池的 submitted / completed / rejected /
    panicked 计数与队列深度。
*/
package metrics
