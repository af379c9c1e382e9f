// Package qhmm is an in-memory toolkit for hidden Markov model inference
// and parameter estimation with pluggable emission and transition
// distributions — including non-homogeneous transitions conditioned on
// per-position covariates.
//
// 🚀 What is qhmm?
//
//	A library that brings together the standard HMM machinery:
//		• Sequences: contiguous multi-slot emission & covariate storage with a cursor
//		• Distributions: a plug-in contract any family can satisfy
//		• Function tables: homogeneous & covariate-driven transitions, multi-slot emissions
//		• DP engine: forward, backward, Viterbi, posterior decoding, stochastic backtrace
//		• EM: Baum–Welch with posterior-weighted sufficient statistics and
//		  parameter-sharing groups (tied parameters across states and slots)
//		• Reference families: discrete emission & transition, gamma,
//		  scaled negative binomial with Newton dispersion estimation
//
// ✨ Why choose qhmm?
//
//   - Log-domain everywhere – −∞ is a first-class probability
//   - Sparse-aware – forbidden transitions shrink the inner recurrences
//   - Extensible – register new families by name, no engine changes
//   - Caller-owned storage – the engine reads and writes your matrices
//
// Everything is organized under focused subpackages:
//
//	seq/      — sequence storage & position iterator
//	logsum/   — numerically stable log-sum-exp accumulation
//	dist/     — distribution contract, Params, reference families
//	tables/   — function tables aggregating per-state distributions
//	hmm/      — DP engine, EM driver, posterior iterators
//	registry/ — name→factory table for external layers
//	cmd/qhmm  — fit, decode & generate command-line front end
//
// Quick sketch:
//
//	sequences + parameters → tables → engine → posteriors → EM → new parameters
//
// Dive into the per-package docs for contracts, numerical conventions and
// worked examples.
//
//	go get github.com/coregenomics/qhmm
package qhmm
