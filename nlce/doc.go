// Package nlce grows, classifies and counts the connected clusters of a
// numerical linked cluster expansion.
//
// Clusters are states whose set bits are the occupied lattice sites. Growth
// adds one neighboring site at a time and keeps one canonical state per
// symmetry class, weighted by the size of its point-group orbit. Classes are
// then merged by graph isomorphism into topologies, and every topology records
// how often each smaller topology embeds in it. Expansion ties the stages
// together and evaluates weights, partial sums and Wynn-resummed sums.
package nlce
